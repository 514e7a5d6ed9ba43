package intents

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/novahome/nova-core/core/intents"

var logger = otelslog.NewLogger(scopeName)
