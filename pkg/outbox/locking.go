package outbox

import "gorm.io/gorm/clause"

// lockForPublish keeps parallel publisher instances from racing on the same
// rows. SKIP LOCKED lets a second instance take the next batch instead of
// blocking.
func lockForPublish() clause.Expression {
	return clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}
}
