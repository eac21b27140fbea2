package mode

// Mode is the ranking path a search request takes.
type Mode string

// Search mode constants.
const (
	// Ranked fuses lexical and semantic signals for a non-empty query.
	Ranked Mode = "ranked"
	// Browse returns documents in corpus order for an empty query.
	Browse Mode = "browse"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Ranked || m == Browse
}
