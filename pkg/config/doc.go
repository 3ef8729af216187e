/*
Package config loads the replacerc tool configuration and encodes rule documents.

	            +-------------+
	            |   Config    |
	            | store/apply |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |           |           |
	+-----+-----+ +---+---+ +-----+-----+
	|   YAML    | | JSON  | |    HCL    |
	|  Parser   | | Parser| |  Parser   |
	+-----------+ +-------+ +-----------+

🎯 Purpose:
- Finds and parses .replacerc.{yaml,yml,json,hcl}
- Fills defaults and validates the result
- Reads and writes rule collections in the same three formats

🔄 Flow:
1. Discover looks for a config file in the book directory
2. The matching Parser decodes it
3. Validate fills defaults (file store, yaml rules, tree strategy)
4. Relative store paths are resolved against the config file

🔍 Example:

	cfg, err := config.Discover(ctx, bookDir)
	if err != nil {
		return err
	}

	data, err := config.EncodeRules(cfg.Store.Format, rules)
*/
package config
