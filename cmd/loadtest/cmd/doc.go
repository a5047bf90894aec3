/*
Package cmd provides all the commands for the loadtest binary.

The commands are separated by file, one file per command. A few global flags configure logging for every
command. These are defined by the globally exposed variables in root.go

Every flag can also be set in $HOME/.loadtest.yaml or through the environment, e.g.

	calls: 500
	concurrent: 50
	output: json

Usage

	loadtest run http://localhost:14000/ --calls 1000 --concurrent 50 --report rate,code
	loadtest history --db loadtest.db
*/
package cmd
