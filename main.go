package main

import "financescrapper/cmd"

func main() {
	cmd.Execute()
}
