package notification

import "sheet_reminder_bot/internal/domain/identity"

// Intent is a decision that one recipient should hear about one row under one rule.
type Intent struct {
	Recipient identity.Person
	Rule      RuleKind
	RowNumber int
	Key       Key // ledger key to mark once delivered
}
