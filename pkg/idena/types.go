package idena

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Amount is a token amount as reported by the indexer API. The API encodes
// amounts sometimes as JSON numbers and sometimes as decimal strings, so
// unmarshaling accepts both. Missing and null decode to zero.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*a = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}

// EpochInfo describes one validation epoch
type EpochInfo struct {
	Epoch                        int64  `json:"epoch"`
	ValidationFirstBlockHeight   int64  `json:"validationFirstBlockHeight"`
	DiscriminationStakeThreshold Amount `json:"discriminationStakeThreshold"`
}

// Block carries the subset of block fields the generator inspects
type Block struct {
	Height int64    `json:"height"`
	Flags  []string `json:"flags"`
}

// Transaction carries the subset of transaction fields the generator inspects
type Transaction struct {
	Hash string `json:"hash"`
	Type string `json:"type"`
	From string `json:"from"`
}

// BadAuthor is an epoch author flagged for bad flips. Older API versions
// report the address under "author".
type BadAuthor struct {
	Address string `json:"address"`
	Author  string `json:"author"`
}

// Addr returns whichever address field the API populated
func (b BadAuthor) Addr() string {
	if b.Address != "" {
		return b.Address
	}
	return b.Author
}

// ValidationSummary is the per-identity validation outcome for one epoch.
// The score fields carry both current and legacy API key names.
type ValidationSummary struct {
	State       string `json:"state"`
	Penalized   bool   `json:"penalized"`
	Approved    bool   `json:"approved"`
	Missed      bool   `json:"missed"`
	WrongGrades bool   `json:"wrongGrades"`
	WrongGrade  bool   `json:"wrongGrade"`
	Stake       Amount `json:"stake"`

	ShortFlipPoints   Amount `json:"shortFlipPoints"`
	ShortAnswersScore Amount `json:"shortAnswersScore"`
	LongFlipPoints    Amount `json:"longFlipPoints"`
	LongAnswersScore  Amount `json:"longAnswersScore"`
}

// HasWrongGrades folds the two API spellings of the wrong-grades flag
func (v ValidationSummary) HasWrongGrades() bool {
	return v.WrongGrades || v.WrongGrade
}

// ShortPoints returns the short-session score under either API key
func (v ValidationSummary) ShortPoints() float64 {
	if v.ShortFlipPoints != 0 {
		return float64(v.ShortFlipPoints)
	}
	return float64(v.ShortAnswersScore)
}

// LongPoints returns the long-session score under either API key
func (v ValidationSummary) LongPoints() float64 {
	if v.LongFlipPoints != 0 {
		return float64(v.LongFlipPoints)
	}
	return float64(v.LongAnswersScore)
}

// Identity is the current chain state of an identity
type Identity struct {
	Address string `json:"address"`
	State   string `json:"state"`
}

// Reward is one session reward record for an identity
type Reward struct {
	Type    string `json:"type"`
	Balance Amount `json:"balance"`
	Stake   Amount `json:"stake"`
}

// envelope is the indexer API response wrapper
type envelope struct {
	Result            json.RawMessage `json:"result"`
	ContinuationToken string          `json:"continuationToken"`
	Error             *apiError       `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
}
