package merge

import "github.com/google/uuid"

// TxnID identifies one in-flight region-merge transaction; it is carried
// in the controller handshake's debug log lines. It is generated fresh for
// each Transaction and is not persisted. Thin wrapper over
// github.com/google/uuid, grounded in
// the teacher's root uuid.go, which keeps this package decoupled from the
// external type's API surface.
type TxnID uuid.UUID

// newTxnID returns a new randomly generated TxnID.
func newTxnID() TxnID {
	return TxnID(uuid.New())
}

func (id TxnID) String() string {
	return uuid.UUID(id).String()
}
