package sportsdb

import (
	"strings"

	"github.com/amaumene/rankboard/internal/models"
	"github.com/amaumene/rankboard/internal/providers"
)

// TheSportsDB answers null instead of an empty array when nothing matches
type playersResponse struct {
	Player  []player `json:"player"`
	Players []player `json:"players"`
}

type eventsResponse struct {
	Event  []event `json:"event"`
	Events []event `json:"events"`
}

type player struct {
	IDPlayer         string `json:"idPlayer"`
	StrPlayer        string `json:"strPlayer"`
	StrTeam          string `json:"strTeam"`
	StrSport         string `json:"strSport"`
	StrPosition      string `json:"strPosition"`
	StrNationality   string `json:"strNationality"`
	DateBorn         string `json:"dateBorn"`
	StrThumb         string `json:"strThumb"`
	StrCutout        string `json:"strCutout"`
	StrDescriptionEN string `json:"strDescriptionEN"`
}

type event struct {
	IDEvent      string `json:"idEvent"`
	StrEvent     string `json:"strEvent"`
	StrSport     string `json:"strSport"`
	StrLeague    string `json:"strLeague"`
	StrSeason    string `json:"strSeason"`
	DateEvent    string `json:"dateEvent"`
	StrVenue     string `json:"strVenue"`
	StrHomeTeam  string `json:"strHomeTeam"`
	StrAwayTeam  string `json:"strAwayTeam"`
	IntHomeScore string `json:"intHomeScore"`
	IntAwayScore string `json:"intAwayScore"`
	StrThumb     string `json:"strThumb"`
	StrPoster    string `json:"strPoster"`
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func (p player) toRecord() providers.Record {
	image := p.StrCutout
	if image == "" {
		image = p.StrThumb
	}

	return providers.Record{
		Provider: models.ProviderSportsDB,
		Category: models.CategoryAthlete,
		NativeID: p.IDPlayer,
		Name:     p.StrPlayer,
		Image:    image,
		Date:     p.DateBorn,
		Subtitle: joinNonEmpty(" · ", p.StrTeam, p.StrPosition),
		Metadata: map[string]any{
			"sport":       p.StrSport,
			"nationality": p.StrNationality,
			"description": p.StrDescriptionEN,
		},
	}
}

func (e event) toRecord() providers.Record {
	image := e.StrPoster
	if image == "" {
		image = e.StrThumb
	}

	// Some historic events carry only a season ("1966" or "2016-2017")
	var date interface{} = e.DateEvent
	if e.DateEvent == "" {
		date = e.StrSeason
	}

	metadata := map[string]any{
		"sport":    e.StrSport,
		"league":   e.StrLeague,
		"season":   e.StrSeason,
		"venue":    e.StrVenue,
		"homeTeam": e.StrHomeTeam,
		"awayTeam": e.StrAwayTeam,
	}
	if e.IntHomeScore != "" && e.IntAwayScore != "" {
		metadata["score"] = e.IntHomeScore + "-" + e.IntAwayScore
	}

	return providers.Record{
		Provider: models.ProviderSportsDB,
		Category: models.CategorySportingEvent,
		NativeID: e.IDEvent,
		Name:     e.StrEvent,
		Image:    image,
		Date:     date,
		Subtitle: joinNonEmpty(" · ", e.StrLeague, e.StrSeason),
		Metadata: metadata,
	}
}
