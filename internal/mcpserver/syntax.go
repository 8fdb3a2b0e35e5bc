package mcpserver

// QuerySyntax describes the search, glob and wikilink syntax understood by
// the vaultlens tools. It is served as a resource and by get_query_syntax.
const QuerySyntax = `# vaultlens Query Syntax

## Search (search_vault)

- ` + "`query`" + ` is a literal string unless ` + "`isRegex`" + ` is true, in which case it is
  an RE2 regular expression (no backreferences or lookaround).
- Matching is case-insensitive unless ` + "`caseSensitive`" + ` is true.
- Each file is checked by name first (line 0, name without extension), then
  line by line. Lines and columns are 1-indexed; columns count characters.
- The search stops as soon as ` + "`maxResults`" + ` matches (default 100) are found.
- Snippets are windows of ` + "`snippetLength`" + ` characters (default 100) around the
  match. ` + "`matchRanges`" + ` give [start, end) offsets inside the snippet.

## Path filters

` + "`folder`" + ` keeps a folder and everything beneath it. ` + "`includes`" + ` and
` + "`excludes`" + ` are glob lists matched against the whole vault path:

| Glob     | Matches                                   |
|----------|-------------------------------------------|
| ` + "`*`" + `      | any run of characters except ` + "`/`" + `         |
| ` + "`**`" + `     | any run of characters including ` + "`/`" + `      |
| ` + "`**/`" + `    | zero or more leading folders              |
| ` + "`?`" + `      | one character except ` + "`/`" + `                 |
| ` + "`[a-z]`" + `  | one character from the class              |
| ` + "`{a,b}`" + `  | either literal alternative                |

A path must match at least one include (when any are given) and no exclude.

## Wikilinks

- ` + "`[[target]]`" + ` and ` + "`[[target|alias]]`" + ` link to other notes.
- ` + "`[[target#Heading]]`" + ` and ` + "`[[target^block]]`" + ` resolve to ` + "`target`" + `.
- Targets resolve by exact path, then relative to the linking note's folder,
  then by case-insensitive name; ties prefer the linking note's folder and
  then the shortest path.

## Waypoints

A waypoint is the region between a ` + "`%% Begin Waypoint %%`" + ` line and the next
` + "`%% End Waypoint %%`" + ` line. An unterminated block is ignored.
`
