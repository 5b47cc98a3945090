package main

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/brewbar/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
