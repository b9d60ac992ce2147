package main

import (
	_ "time/tzdata"

	"slotwatch/cmd/slotwatch/commands"
	"slotwatch/pkg/serviceutil"
)

func main() {
	ctx, stop := serviceutil.SignalContext()
	defer stop()
	commands.ExecuteContext(ctx)
}
