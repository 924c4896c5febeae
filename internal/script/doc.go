// Package script loads YAML descriptions of an interactive session and
// turns them into a configured commando.Driver.
//
// A script names the command to run, how to run it, folders to create
// beforehand and an ordered list of rules:
//
//	command: ./bin/app init
//	working_dir: ./sandbox
//	dirs: [./sandbox]
//	rules:
//	  - match: "Project name\\?"
//	    respond: "demo\n"
//	  - match: "\\(y/n\\)"
//	    respond: "Yes\n"
//	    many: true
//	  - match: "Done"
//	    end: true
//
// Relative paths are resolved against the directory holding the script.
// Responses are written verbatim, so include the trailing newline.
package script
