// Package symboltab loads the comma-separated symbol files used to
// seed a generator run or a parser's subscription list, grounded on
// original_source/itch_common.c's load_symbol_file/read_symbol_file
// and symbol_name_init. Per spec.md §6: a ticker is everything before
// the first comma, trailing fields on the line are ignored, tickers
// longer than 4 significant characters are warned about and skipped,
// and random price bounds are filled in for every loaded symbol.
package symboltab

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/nezhinsky/itchygen/internal/itchmodel"
	"github.com/nezhinsky/itchygen/internal/randgen"
)

// minPriceLo, minPriceHi and maxPriceMultiplier match
// original_source/itch_common.c's symbol_name_init: min_price is drawn
// uniformly in [10, 600] (both ends inclusive), max_price is 3x
// min_price.
const (
	minPriceLo         = 10
	minPriceHi         = 600
	maxPriceMultiplier = 3
)

// Load reads fname, one symbol per line with the ticker as the first
// comma-separated field (trailing fields ignored), and returns the
// resulting symbols with randomly assigned price bounds drawn from
// src. Tickers over 4 significant characters are skipped; if
// printWarn is set, a message is returned in warnings for each skip
// and each malformed line.
func Load(fname string, src *randgen.Source, printWarn bool) (symbols []itchmodel.Symbol, warnings []string, err error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, nil, fmt.Errorf("symboltab: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r\n")

		comma := strings.IndexByte(line, ',')
		if comma < 0 {
			if printWarn {
				warnings = append(warnings, fmt.Sprintf("%s +%d unexpected format: [%s]", fname, lineNo, line))
			}
			continue
		}

		ticker := line[:comma]
		if len(ticker) >= 5 {
			if printWarn {
				warnings = append(warnings, fmt.Sprintf("%s +%d symbol longer than 4 chars: [%s]", fname, lineNo, ticker))
			}
			continue
		}

		symbols = append(symbols, newSymbol(ticker, src))
	}
	if err := sc.Err(); err != nil {
		return nil, warnings, fmt.Errorf("symboltab: %w", err)
	}
	return symbols, warnings, nil
}

// newSymbol builds a Symbol with random price bounds, the Go
// counterpart of symbol_name_init's non-auto-gen branch.
func newSymbol(name string, src *randgen.Source) itchmodel.Symbol {
	minPrice := uint32(src.IntRange(minPriceLo, minPriceHi))
	return itchmodel.Symbol{
		Name:     name,
		MinPrice: minPrice,
		MaxPrice: minPrice * maxPriceMultiplier,
		AutoGen:  false,
	}
}

// GenerateRandom builds a Symbol with an auto-generated 3- or
// 4-character name, the Go counterpart of symbol_name_generate:
// symbol_name_init's NULL-name branch. lenIntervals must be built with
// randgen.NewIntervals(80, 20) so 3-character names are drawn 80% of
// the time and 4-character names 20% of the time, matching
// symbol_name_generator_init.
func GenerateRandom(src *randgen.Source, lenIntervals []randgen.Interval) itchmodel.Symbol {
	length := 3 + src.Choose(lenIntervals)
	name := make([]byte, length)
	for i := range name {
		name[i] = src.CapitalLetter()
	}
	minPrice := uint32(src.IntRange(minPriceLo, minPriceHi))
	return itchmodel.Symbol{
		Name:     string(name),
		MinPrice: minPrice,
		MaxPrice: minPrice * maxPriceMultiplier,
		AutoGen:  true,
	}
}

// DefaultLengthIntervals returns the 80%/20% split between 3- and
// 4-character auto-generated symbol names that
// symbol_name_generator_init hardcodes.
func DefaultLengthIntervals() []randgen.Interval {
	iv, _ := randgen.NewIntervals(80, 20)
	return iv
}
