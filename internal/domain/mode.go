package domain

// Mode is the global trading mode. Real capital is only ever at risk in
// ModeLiveLimited, and only when the allow-live flag and the platform safety
// lock both agree.
type Mode string

const (
	ModePaper       Mode = "PAPER"
	ModeLiveLimited Mode = "LIVE_LIMITED"
	ModeHalted      Mode = "HALTED"
)

// Valid reports whether m is one of the three known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModePaper, ModeLiveLimited, ModeHalted:
		return true
	}
	return false
}

// Live reports whether the mode permits real-money execution at all.
// The executor still requires the allow-live flag and an unlocked platform.
func (m Mode) Live() bool {
	return m == ModeLiveLimited
}
