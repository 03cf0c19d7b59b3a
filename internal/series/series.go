package series

// Series is a token price series aligned to the shared time axis.
// Values are defined for axis indexes in [StartIndex(), axis length).
type Series interface {
	Symbol() string
	StartIndex() int
	// At returns the price at an axis index.
	At(axisIndex int) float64
	IsReference() bool
}

// TokenSeries is a fetched token price series.
type TokenSeries struct {
	symbol string
	start  int
	prices []float64
}

func (s *TokenSeries) Symbol() string { return s.symbol }

func (s *TokenSeries) StartIndex() int { return s.start }

func (s *TokenSeries) At(axisIndex int) float64 { return s.prices[axisIndex-s.start] }

func (s *TokenSeries) IsReference() bool { return false }

// ReferenceSeries is the native asset: present at every axis index with unit value.
type ReferenceSeries struct {
	symbol string
}

func (s ReferenceSeries) Symbol() string { return s.symbol }

func (s ReferenceSeries) StartIndex() int { return 0 }

func (s ReferenceSeries) At(int) float64 { return 1 }

func (s ReferenceSeries) IsReference() bool { return true }
