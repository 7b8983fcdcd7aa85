package main

import "github.com/dmitrijs2005/gophsocial/internal/admin"

func main() {
	admin.Execute()
}
