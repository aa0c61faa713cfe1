package game

// Mode is the top-level session state.
type Mode string

const (
	ModeIdle         Mode = "IDLE"
	ModePlaying      Mode = "PLAYING"
	ModeWhiteHatWin  Mode = "WHITE_HAT_WIN"
	ModeBlackHatWin  Mode = "BLACK_HAT_WIN"
	ModeGameOverLoss Mode = "GAME_OVER_LOSS"
)

// Over reports whether the game has finished.
func (m Mode) Over() bool {
	return m == ModeWhiteHatWin || m == ModeBlackHatWin || m == ModeGameOverLoss
}
