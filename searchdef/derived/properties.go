// Package derived compiles resolved rank profiles into the flat, ordered
// key/value property lists consumed by the ranking runtime.
package derived

import (
	"math"
	"strconv"
	"strings"
)

// Property keys
const (
	KeyTermwiseLimit       = "vespa.matching.termwise_limit"
	KeyNumThreadsPerSearch = "vespa.matching.numthreadspersearch"
	KeyMinHitsPerThread    = "vespa.matching.minhitsperthread"
	KeyNumSearchPartitions = "vespa.matching.numsearchpartitions"

	KeyFirstPhase                = "vespa.rank.firstphase"
	KeySecondPhase               = "vespa.rank.secondphase"
	KeyRerankCount               = "vespa.hitcollector.heapsize"
	KeyKeepRankCount             = "vespa.hitcollector.arraysize"
	KeyIgnoreDefaultRankFeatures = "vespa.dump.ignoredefaultfeatures"
	KeyRankFeature               = "vespa.dump.feature"
	KeySummaryFeature            = "vespa.summary.feature"

	PrefixRankType      = "vespa.ranktype."
	PrefixLiteralBoost  = "vespa.literalboost."
	PrefixFieldWeight   = "vespa.fieldweight."
	PrefixFilterField   = "vespa.isfilterfield."
	PrefixAttributeType = "vespa.type.attribute."
	PrefixQueryType     = "vespa.type.query."
)

// Property is one emitted key/value pair
type Property struct {
	Key   string
	Value string
}

func (p Property) String() string { return p.Key + "=" + strconv.Quote(p.Value) }

// Properties is an ordered property list. Keys may repeat.
type Properties []Property

// Get returns the value of the first property with key
func (ps Properties) Get(key string) (string, bool) {
	for _, p := range ps {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Values returns the values of every property with key, in order
func (ps Properties) Values(key string) []string {
	var out []string
	for _, p := range ps {
		if p.Key == key {
			out = append(out, p.Value)
		}
	}
	return out
}

// WithPrefix returns the properties whose key starts with prefix
func (ps Properties) WithPrefix(prefix string) Properties {
	var out Properties
	for _, p := range ps {
		if strings.HasPrefix(p.Key, prefix) {
			out = append(out, p)
		}
	}
	return out
}

func (ps *Properties) add(key, value string) {
	*ps = append(*ps, Property{Key: key, Value: value})
}

// formatFloat renders v the way the ranking runtime's config writer prints
// doubles: plain decimals with at least one fraction digit inside
// [1e-3, 1e7), otherwise "<mantissa>E<exponent>" such as "1.0E-5".
func formatFloat(v float64) string {
	if abs := math.Abs(v); v == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	mant, exp, _ := strings.Cut(strconv.FormatFloat(v, 'E', -1, 64), "E")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	n, _ := strconv.Atoi(exp)
	return mant + "E" + strconv.Itoa(n)
}
