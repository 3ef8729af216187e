/*
Package status reads, rewrites and tracks the section files of an unpacked book.

	            +-------------+
	            |   Manager   |
	            | (book dir)  |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +----+-----+
	|   Files   |           | Sections |
	|  (atomic) |           | (status) |
	+-----------+           +----------+

🎯 Purpose:
- Reads section files relative to the book directory
- Replaces them atomically, keeping permissions, with optional .bak copies
- Tracks each section as modified, unchanged, would-modify or failed
- Totals a run for the final report

🔍 Example:

	mgr := status.New(bookDir, zerolog.Ctx(ctx))

	content, err := mgr.ReadFile(ctx, "OEBPS/ch1.xhtml")
	...
	err = mgr.WriteFileAtomic(ctx, "OEBPS/ch1.xhtml", []byte(result.ModifiedContent))
	mgr.TrackSection(ctx, status.SectionInfo{Path: "OEBPS/ch1.xhtml", Status: status.StatusModified})

	summary := mgr.Summary(ctx)
*/
package status
