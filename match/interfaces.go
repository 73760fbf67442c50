package match

import "github.com/wfunc/barrelduel/models"

// Recorder persists finished duels. Defined here so match does not depend
// on the services package.
type Recorder interface {
	RecordDuel(record *models.DuelRecord) error
}
