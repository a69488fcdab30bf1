// Command numbering manages document number formats and sequences from the shell.
package main

func main() {
	Execute()
}
