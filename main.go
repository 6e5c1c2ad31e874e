package main

import "chatService/cmd/app"

func main() {
	app.GetApp().Run()
}
