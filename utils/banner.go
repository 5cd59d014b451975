package utils

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/jedib0t/go-pretty/v6/text"
)

func DrawBanner() {
	banner := figure.NewFigure("egress doctor", "", true)
	fmt.Println(text.FgHiBlue.Sprint(banner.String()))
}
