// The callscope command re-renders call traces that were recorded into
// SQLite databases with the database output mode.
package main

func main() {
	Execute()
}
