package printer

import (
	"github.com/slok/plancoach/internal/app/snapshot"
	"github.com/slok/plancoach/internal/apply"
	"github.com/slok/plancoach/internal/model"
)

// Printer knows how to print coach information in different formats.
type Printer interface {
	PrintTurn(resp model.AgentResponse) error
	PrintConversation(msgs []model.Message, awaitingConfirmation bool) error
	PrintApplyResult(res apply.Result) error
	PrintSnapshot(snap snapshot.Snapshot) error
	PrintCurriculum(c model.Curriculum) error
	PrintMessage(msg string) error
}

var (
	_ Printer = &TablePrinter{}
	_ Printer = &JSONPrinter{}
)
