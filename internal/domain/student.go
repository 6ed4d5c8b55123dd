package domain

import "time"

// Student is one loan application identity referred by a recruitment partner.
// A single user can hold several student records, one per application, which
// is what keeps their loans and ledgers isolated from each other.
type Student struct {
	ID        string
	UserID    string
	PartnerID string // the referring partner
	FullName  string
	Email     string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReferredBy reports whether the student was referred by the given partner.
func (s *Student) ReferredBy(partnerID string) bool {
	return s.PartnerID == partnerID
}
