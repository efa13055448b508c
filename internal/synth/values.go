package synth

import (
	"strings"

	"github.com/solatis/rulesynth/internal/types"
)

// Value type names used in filters.
const (
	valueString       = "String"
	valueNumber       = "Number"
	valueMeasure      = "Measure"
	valueBool         = "Bool"
	valueDate         = "Date"
	valueLocation     = "Location"
	valueEnum         = "Enum"
	valueHashtag      = "Hashtag"
	valueUsername     = "Username"
	valueURL          = "URL"
	valueEmailAddress = "EmailAddress"
	valuePhoneNumber  = "PhoneNumber"
	valueVarRef       = "VarRef"
)

// Constant carries a plain filter value, with a display name for entities.
type Constant struct {
	Value   any    `json:"value"`
	Display string `json:"display,omitempty"`
}

// Measure is a value with a unit.
type Measure struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Location is a relative location; coordinates are -1 when unresolved.
type Location struct {
	RelativeTag string  `json:"relativeTag"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Date uses -1 for unset time-of-day fields.
type Date struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

var (
	stringArguments   = []string{"i'm happy", "you would never believe what happened", "merry christmas", "love you"}
	usernameArguments = []string{"alice"}
	hashtagArguments  = []string{"funny", "cat", "lol"}
	urlArguments      = []string{"http://www.abc.def"}
	numberArguments   = []float64{42, 7, 14, 11}
	booleanArguments  = []bool{true, false}
	emailArguments    = []string{"bob@stanford.edu"}
	phoneArguments    = []string{"+16501234567"}

	measureArguments = map[string][]Measure{
		"C":    {{73, "F"}, {22, "C"}},
		"m":    {{1000, "m"}, {42, "cm"}},
		"kg":   {{82, "kg"}, {155, "lb"}},
		"kcal": {{500, "kcal"}},
		"mps":  {{5, "kmph"}, {25, "mph"}},
		"ms":   {{2, "h"}},
		"byte": {{5, "KB"}, {20, "MB"}},
	}

	locationArguments = []Location{
		{"rel_current_location", -1, -1},
		{"rel_home", -1, -1},
		{"rel_work", -1, -1},
	}

	dateArguments = []Date{
		{2017, 2, 14, -1, -1, -1},
		{2016, 5, 4, -1, -1, -1},
	}

	// entityArguments lists [display, value] pairs per entity type.
	entityArguments = map[string][][2]string{
		"sportradar:eu_soccer_team": {{"Juventus", "juv"}, {"Barcellona", "bar"}, {"Bayern Munchen", "fcb"}},
		"sportradar:mlb_team":       {{"SF Giants", "sf"}, {"Chicago Cubs", "chc"}},
		"sportradar:nba_team":       {{"Golden State Warriors", "gsw"}, {"LA Lakers", "lal"}},
		"sportradar:ncaafb_team":    {{"Stanford Cardinals", "sta"}, {"California Bears", "cal"}},
		"sportradar:ncaambb_team":   {{"Stanford Cardinals", "stan"}, {"California Bears", "cal"}},
		"sportradar:nfl_team":       {{"Seattle Seahawks", "sea"}, {"SF 49ers", "sf"}},
		"sportradar:us_soccer_team": {{"San Jose Earthquakes", "sje"}, {"Toronto FC", "tor"}},
		"tt:stock_id":               {{"Google", "goog"}, {"Apple", "aapl"}, {"Microsoft", "msft"}},
	}

	// specialStrings fixes the value of well-known string parameters.
	specialStrings = map[string]string{
		"repo_name":         "android_repository",
		"file_name":         "log.txt",
		"old_name":          "log.txt",
		"new_name":          "backup.txt",
		"folder_name":       "archive",
		"purpose":           "research project",
		"filter":            "lo-fi",
		"query":             "super bowl",
		"summary":           "celebration",
		"category":          "sports",
		"from_name":         "bob",
		"blog_name":         "government secret",
		"camera_used":       "mastcam",
		"description":       "christmas",
		"source_language":   "english",
		"target_language":   "chinese",
		"detected_language": "english",
		"organizer":         "stanford",
		"user":              "bob",
		"positions":         "ceo",
		"specialties":       "java",
		"industry":          "music",
		"template":          "wtf",
		"text_top":          "ummm... i have a question...",
		"text_bottom":       "wtf?",
		"phase":             "moon",
	}
)

// chooseEntity picks a value for an entity-typed parameter.
// ok is false for entity types without sample values.
func (g *Generator) chooseEntity(entityType string) (valueType string, value any, ok bool) {
	rng := g.rng
	switch entityType {
	case "tt:email_address":
		return valueEmailAddress, Constant{Value: uniform(rng, emailArguments)}, true
	case "tt:phone_number":
		return valuePhoneNumber, Constant{Value: uniform(rng, phoneArguments)}, true
	case "tt:username":
		return valueUsername, Constant{Value: uniform(rng, usernameArguments)}, true
	case "tt:hashtag":
		return valueHashtag, Constant{Value: uniform(rng, hashtagArguments)}, true
	case "tt:url":
		return valueURL, Constant{Value: uniform(rng, urlArguments)}, true
	case "tt:picture":
		return "", nil, false
	}

	choices, found := entityArguments[entityType]
	if !found {
		g.logger.Debug("unrecognized entity type", "entity_type", entityType)
		return "", nil, false
	}
	choice := uniform(rng, choices)
	return "Entity(" + entityType + ")", Constant{Value: choice[1], Display: choice[0]}, true
}

// chooseValue picks a constant for parameter argName of type t.
// ok is false when t has no sample values.
func (g *Generator) chooseValue(argName string, t types.Type) (valueType string, value any, ok bool) {
	rng := g.rng
	switch t.Kind {
	case types.TypeArray:
		if t.Elem == nil {
			return "", nil, false
		}
		return g.chooseValue(argName, *t.Elem)

	case types.TypeString:
		if s, found := specialStrings[argName]; found {
			return valueString, Constant{Value: s}, true
		}
		if strings.HasSuffix(argName, "title") {
			return valueString, Constant{Value: "news"}, true
		}
		if strings.HasPrefix(argName, "label") {
			return valueString, Constant{Value: "work"}, true
		}
		return valueString, Constant{Value: uniform(rng, stringArguments)}, true

	case types.TypeHashtag:
		if argName == "channel" {
			return valueHashtag, Constant{Value: "work"}, true
		}
		return valueHashtag, Constant{Value: uniform(rng, hashtagArguments)}, true

	case types.TypeNumber:
		switch {
		case argName == "surge":
			return valueNumber, Constant{Value: 1.5}, true
		case argName == "heartrate":
			return valueNumber, Constant{Value: float64(80)}, true
		case strings.HasPrefix(argName, "high"):
			return valueNumber, Constant{Value: float64(20)}, true
		case strings.HasPrefix(argName, "low"):
			return valueNumber, Constant{Value: float64(10)}, true
		}
		return valueNumber, Constant{Value: uniform(rng, numberArguments)}, true

	case types.TypeMeasure:
		switch argName {
		case "high":
			return valueMeasure, Measure{75, "F"}, true
		case "low":
			return valueMeasure, Measure{70, "F"}, true
		}
		choices := measureArguments[t.Unit]
		if len(choices) == 0 {
			g.logger.Debug("no sample values for unit", "unit", t.Unit, "arg", argName)
			return "", nil, false
		}
		return valueMeasure, uniform(rng, choices), true

	case types.TypeDate:
		return valueDate, uniform(rng, dateArguments), true

	case types.TypeBoolean:
		return valueBool, Constant{Value: uniform(rng, booleanArguments)}, true

	case types.TypeLocation:
		switch argName {
		case "start":
			return valueLocation, Location{"rel_home", -1, -1}, true
		case "end":
			return valueLocation, Location{"rel_work", -1, -1}, true
		}
		return valueLocation, uniform(rng, locationArguments), true

	case types.TypeEmailAddress:
		return valueEmailAddress, Constant{Value: uniform(rng, emailArguments)}, true
	case types.TypePhoneNumber:
		return valuePhoneNumber, Constant{Value: uniform(rng, phoneArguments)}, true
	case types.TypeUsername:
		return valueUsername, Constant{Value: uniform(rng, usernameArguments)}, true
	case types.TypeURL:
		return valueURL, Constant{Value: uniform(rng, urlArguments)}, true

	case types.TypeEnum:
		if len(t.Entries) == 0 {
			return "", nil, false
		}
		return valueEnum, Constant{Value: uniform(rng, t.Entries)}, true

	case types.TypeEntity:
		return g.chooseEntity(t.Entity)

	default:
		// Picture, Time, Any
		return "", nil, false
	}
}
