package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/Gitfoe/ChadCounting/internal/game/models"
)

// schemaVersion is the current state file version. Files without a version
// envelope are the legacy layout where the whole document is the guild
// mapping and settings live under s_-prefixed keys.
const schemaVersion = 1

type stateFile struct {
	Version int                            `json:"version"`
	Guilds  map[string]*models.GuildRecord `json:"guilds"`
}

// upgradeDocument parses a raw state file, migrates a legacy layout to the
// current version, and reconciles every record against the canonical schema.
// It returns the upgraded document and whether anything changed; a change
// obliges the caller to back up the original bytes before rewriting.
func upgradeDocument(data []byte) (map[string]any, bool, error) {
	raw, err := decodeObject(data)
	if err != nil {
		return nil, false, err
	}

	version := 0
	if n, ok := raw["version"].(json.Number); ok {
		if _, ok := raw["guilds"].(map[string]any); ok {
			v, err := n.Int64()
			if err != nil {
				return nil, false, fmt.Errorf("bad version field: %s", err)
			}
			version = int(v)
		}
	}
	if version > schemaVersion {
		return nil, false, fmt.Errorf("state file version %d is newer than supported version %d", version, schemaVersion)
	}

	changed := false
	var guilds map[string]any
	if version == 0 {
		guilds = migrateLegacy(raw)
		changed = true
	} else {
		guilds, _ = raw["guilds"].(map[string]any)
	}
	if guilds == nil {
		guilds = map[string]any{}
	}

	guildCanonical, err := canonicalDefaults(models.DefaultGuildRecord())
	if err != nil {
		return nil, false, err
	}
	userCanonical, err := canonicalDefaults(models.NewUserRecord())
	if err != nil {
		return nil, false, err
	}

	for id, g := range guilds {
		gm, ok := g.(map[string]any)
		if !ok {
			return nil, false, fmt.Errorf("guild %s is not an object", id)
		}
		if reconcileSchema(gm, guildCanonical) {
			changed = true
		}
		users, _ := gm["users"].(map[string]any)
		for uid, u := range users {
			um, ok := u.(map[string]any)
			if !ok {
				return nil, false, fmt.Errorf("user %s in guild %s is not an object", uid, id)
			}
			if reconcileSchema(um, userCanonical) {
				changed = true
			}
		}
	}

	return map[string]any{"version": schemaVersion, "guilds": guilds}, changed, nil
}

// reconcileSchema diffs a stored record against the canonical defaults: keys
// missing from the record are added with their default, keys whose stored
// type no longer matches the default's type are replaced, and keys no longer
// part of the schema are deleted. Null values on either side are left alone
// since nullable fields carry no usable type information.
func reconcileSchema(rec, canonical map[string]any) bool {
	changed := false
	for k, dv := range canonical {
		sv, ok := rec[k]
		if !ok {
			rec[k] = dv
			changed = true
			continue
		}
		if dv == nil || sv == nil {
			continue
		}
		if reflect.TypeOf(sv) != reflect.TypeOf(dv) {
			rec[k] = dv
			changed = true
		}
	}
	for k := range rec {
		if _, ok := canonical[k]; !ok {
			delete(rec, k)
			changed = true
		}
	}
	return changed
}

var legacyGuildKeys = map[string]string{
	"s_correct_reaction":   "correct_reaction_emoji",
	"s_incorrect_reaction": "incorrect_reaction_emoji",
	"s_pass_doublecount":   "pass_doublecount",
	"s_banning":            "banning_enabled",
	"s_minimum_ban":        "minimum_ban_minutes",
	"s_maximum_ban":        "maximum_ban_minutes",
	"s_ban_range":          "ban_curve_base",
	"s_troll_amplifier":    "troll_multiplier",
}

// migrateLegacy upgrades the un-versioned layout: the document itself is the
// guild mapping, settings use s_-prefixed names, user ids may be numbers, and
// the user ban duration field was called ban_time.
func migrateLegacy(raw map[string]any) map[string]any {
	for _, g := range raw {
		gm, ok := g.(map[string]any)
		if !ok {
			continue
		}
		for old, current := range legacyGuildKeys {
			if v, ok := gm[old]; ok {
				gm[current] = v
				delete(gm, old)
			}
		}
		if n, ok := gm["previous_user"].(json.Number); ok {
			gm["previous_user"] = n.String()
		}
		users, _ := gm["users"].(map[string]any)
		for _, u := range users {
			um, ok := u.(map[string]any)
			if !ok {
				continue
			}
			if v, ok := um["ban_time"]; ok {
				um["ban_minutes"] = v
				delete(um, "ban_time")
			}
		}
	}
	return raw
}

// decodeObject parses JSON keeping numbers as json.Number, so large snowflake
// ids survive without float64 precision loss.
func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

func canonicalDefaults(v any) (map[string]any, error) {
	byts, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("error encoding canonical defaults: %s", err)
	}
	return decodeObject(byts)
}
