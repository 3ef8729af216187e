/*
Package operation implements the rule lifecycle and applies rules to an unpacked book.

	+-------------+
	|  Operator   |
	| (lifecycle) |
	+------+------+
	       |
	+------+------+        +-------------+
	|    Store    | -----> |    Apply    |
	| (rule sets) |        | (sections)  |
	+-------------+        +------+------+
	                              |
	                       +------+------+
	                       |   Status    |
	                       | (files)     |
	                       +-------------+

🎯 Purpose:
- Creates, adds, updates, toggles and removes rules in the scope they belong to
- Merges pattern duplicates for book and library rules
- Rewrites the section files of a book with the merged rule set

🔄 Flow:
1. Lifecycle calls read a whole collection, change it and save it back
2. Apply lists section files with include/ignore globs
3. Each section goes through the replacement stage, which re-reads the rules
4. Changed sections are written atomically and reported
5. Restore puts back the .bak copies an apply run with Backup left behind

⚡ Key Responsibilities:
- Scope routing (single and book rules live with the book, global rules in the library)
- Missing books are reported by key
- Bounded concurrency over sections

🔍 Example:

	op, err := operation.New(operation.Options{Store: st})
	if err != nil {
		return err
	}

	r, err := op.Create(rule.Options{Pattern: "teh", Replacement: "the"})
	if err != nil {
		return err
	}

	if _, err := op.Add(ctx, rule.ScopeGlobal, "", r); err != nil {
		return err
	}

	report, err := op.Apply(ctx, operation.ApplyOptions{Dir: bookDir, BookKey: "moby-dick"})
*/
package operation
