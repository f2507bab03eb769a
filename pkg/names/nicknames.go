package names

import (
	"encoding/json"
	"os"

	"github.com/Gobusters/ectologger"
)

// Nicknames maps a canonical name to its known nickname variants
type Nicknames map[string][]string

// LoadNicknames reads an external nickname dictionary from path. A missing
// or malformed file never fails startup: the built-in table is returned and
// the skip is logged.
func LoadNicknames(path string, logger ectologger.Logger) Nicknames {
	if path == "" {
		return DefaultNicknames()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.WithError(err).WithField("path", path).Warn("Nickname dictionary not readable, using built-in table")
		return DefaultNicknames()
	}

	var nicknames Nicknames
	if err := json.Unmarshal(data, &nicknames); err != nil {
		logger.WithError(err).WithField("path", path).Warn("Nickname dictionary is malformed, using built-in table")
		return DefaultNicknames()
	}

	return nicknames
}

// DefaultNicknames returns the built-in nickname table
func DefaultNicknames() Nicknames {
	return Nicknames{
		"Alexander":   {"Alex", "Al", "Xander"},
		"Alexandra":   {"Alex", "Lexi", "Sandra"},
		"Andrew":      {"Andy", "Drew"},
		"Anthony":     {"Tony"},
		"Benjamin":    {"Ben", "Benny"},
		"Charles":     {"Charlie", "Chuck"},
		"Christopher": {"Chris", "Topher"},
		"Daniel":      {"Dan", "Danny"},
		"Deborah":     {"Deb", "Debbie"},
		"Dorothy":     {"Dot", "Dottie"},
		"Edward":      {"Ed", "Eddie", "Ted", "Ned"},
		"Elizabeth":   {"Liz", "Beth", "Betty", "Eliza", "Betsy"},
		"Gregory":     {"Greg"},
		"James":       {"Jim", "Jimmy", "Jamie"},
		"Jennifer":    {"Jen", "Jenny"},
		"Jessica":     {"Jess", "Jessie"},
		"John":        {"Jack", "Johnny", "Jon"},
		"Jonathan":    {"Jon", "Jonny"},
		"Joseph":      {"Joe", "Joey"},
		"Joshua":      {"Josh"},
		"Katherine":   {"Kate", "Katie", "Kathy", "Kitty"},
		"Kenneth":     {"Ken", "Kenny"},
		"Margaret":    {"Maggie", "Meg", "Peggy"},
		"Matthew":     {"Matt", "Matty"},
		"Michael":     {"Mike", "Mikey"},
		"Nicholas":    {"Nick", "Nicky"},
		"Patricia":    {"Pat", "Patty", "Trish"},
		"Patrick":     {"Pat", "Paddy"},
		"Peter":       {"Pete"},
		"Rebecca":     {"Becky"},
		"Richard":     {"Rick", "Ricky", "Dick"},
		"Robert":      {"Bob", "Bobby", "Rob", "Robbie"},
		"Ronald":      {"Ron", "Ronnie"},
		"Samantha":    {"Sam", "Sammy"},
		"Samuel":      {"Sam", "Sammy"},
		"Stephanie":   {"Steph"},
		"Steven":      {"Steve"},
		"Susan":       {"Sue", "Suzy"},
		"Theodore":    {"Theo", "Ted", "Teddy"},
		"Thomas":      {"Tom", "Tommy"},
		"Timothy":     {"Tim", "Timmy"},
		"Victoria":    {"Vicky", "Tori"},
		"Vincent":     {"Vince", "Vinny"},
		"William":     {"Bill", "Billy", "Will", "Willy", "Liam"},
		"Zachary":     {"Zach", "Zack"},
	}
}
