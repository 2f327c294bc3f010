// Command soclib runs a coherent memory cache with a set of processors
// generating traffic.
package main

func main() {
	Execute()
}
