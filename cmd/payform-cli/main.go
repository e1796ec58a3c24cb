package main

import (
	"payform-backend/cmd/payform-cli/commands"
	"payform-backend/lib/serviceutil"
	"payform-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	commands.ExecuteContext(serviceutil.SignalContext())
}
