package main

import "daybook/internal/app"

// @title           Daybook API
// @version         1.0
// @description     REST backend for the Daybook journaling app.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	app.Run()
}
