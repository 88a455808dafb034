package store

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"

	"github.com/Gitfoe/ChadCounting/internal/game/models"
)

var testNow = time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guild_data.json")
	st := Open(path, zap.NewNop().Sugar())
	st.now = func() time.Time { return testNow }
	return st, path
}

func backups(t *testing.T, path string) []string {
	t.Helper()
	matches, err := filepath.Glob(path + ".bak*")
	if err != nil {
		t.Fatalf("unexpected error globbing backups: %s", err)
	}
	return matches
}

func TestLoadCreatesMissingFile(t *testing.T) {
	st, path := newTestStore(t)
	if err := st.Load(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if st.Len() != 0 {
		t.Errorf("Len() = %d, want 0", st.Len())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("state file was not created: %s", err)
	}
	var sf stateFile
	if err := json.Unmarshal(data, &sf); err != nil {
		t.Fatalf("state file is not valid JSON: %s", err)
	}
	if sf.Version != schemaVersion {
		t.Errorf("version = %d, want %d", sf.Version, schemaVersion)
	}
}

func TestRoundTrip(t *testing.T) {
	st, path := newTestStore(t)
	if err := st.Load(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	prevMsg := time.Date(2023, 4, 30, 23, 59, 59, 123456789, time.UTC)
	banned := time.Date(2023, 4, 30, 12, 0, 0, 0, time.UTC)
	err := st.Mutate("guild-1", func(rec *models.GuildRecord) error {
		rec.CurrentCount = 42
		rec.HighestCount = 99
		prev := "user-a"
		rec.PreviousUser = &prev
		rec.PreviousMessage = &prevMsg
		ch := "channel-1"
		rec.CountingChannel = &ch
		rec.PreviousCounts = []int{3, 17, 99}
		rec.CorrectReactions = []string{"👍"}
		rec.Users["user-a"] = &models.UserRecord{
			CorrectCounts:   40,
			IncorrectCounts: 2,
			TimeBanned:      &banned,
			BanMinutes:      30,
		}
		rec.Users["user-b"] = &models.UserRecord{CorrectCounts: 5}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	want, _ := st.Get("guild-1")

	reopened := Open(path, zap.NewNop().Sugar())
	if err := reopened.Load(); err != nil {
		t.Fatalf("unexpected error reloading: %s", err)
	}
	got, ok := reopened.Get("guild-1")
	if !ok {
		t.Fatalf("guild record missing after reload")
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("reloaded record mismatch (-want +got):\n%s", diff)
	}

	// A well-formed current file needs neither migration nor backup.
	if got := backups(t, path); len(got) != 0 {
		t.Errorf("backups = %v, want none for a current-format file", got)
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	st, path := newTestStore(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := st.Load(); err == nil {
		t.Errorf("Load() = nil, want an error for a corrupt file")
	}
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	st, path := newTestStore(t)
	if err := os.WriteFile(path, []byte(`{"version": 2, "guilds": {}}`), 0o644); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := st.Load(); err == nil {
		t.Errorf("Load() = nil, want an error for a newer state version")
	}
}

func TestLoadReconcilesSchema(t *testing.T) {
	st, path := newTestStore(t)
	// A guild record missing pass_doublecount, carrying a stray key, and
	// holding a string where a number belongs.
	doc := `{
		"version": 1,
		"guilds": {
			"guild-1": {
				"current_count": "oops",
				"highest_count": 9,
				"previous_user": null,
				"previous_message": null,
				"counting_channel": null,
				"previous_counts": [9],
				"banning_enabled": true,
				"minimum_ban_minutes": 1,
				"maximum_ban_minutes": 120,
				"ban_curve_base": 1.1,
				"troll_multiplier": 7,
				"correct_reaction_emoji": ["🙂"],
				"incorrect_reaction_emoji": ["💀"],
				"stray_key": "gone",
				"users": {
					"user-a": {"correct_counts": 3, "incorrect_counts": 1, "time_banned": null}
				}
			}
		}
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := st.Load(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	rec, ok := st.Get("guild-1")
	if !ok {
		t.Fatalf("guild record missing")
	}
	if rec.PassDoublecount {
		t.Errorf("PassDoublecount = true, want the default false for an added field")
	}
	if rec.CurrentCount != 0 {
		t.Errorf("CurrentCount = %d, want 0 after a type-mismatched value was replaced", rec.CurrentCount)
	}
	if rec.HighestCount != 9 {
		t.Errorf("HighestCount = %d, want 9 untouched", rec.HighestCount)
	}
	if got := rec.Users["user-a"].BanMinutes; got != 0 {
		t.Errorf("BanMinutes = %d, want the default 0 for an added field", got)
	}

	// Exactly one backup of the original bytes, then a rewritten live file
	// without the stray key.
	baks := backups(t, path)
	if len(baks) != 1 {
		t.Fatalf("backups = %v, want exactly one", baks)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	var live map[string]any
	if err := json.Unmarshal(data, &live); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	guilds := live["guilds"].(map[string]any)
	if _, ok := guilds["guild-1"].(map[string]any)["stray_key"]; ok {
		t.Errorf("stray_key survived the rewrite")
	}
}

func TestLoadMigratesLegacyLayout(t *testing.T) {
	st, path := newTestStore(t)
	// The un-versioned layout: the document is the guild mapping, settings
	// carry s_ prefixes, user ids are numbers, ban duration is ban_time.
	doc := `{
		"111222333444555666": {
			"current_count": 4,
			"highest_count": 9,
			"previous_user": 999888777666555444,
			"previous_message": null,
			"counting_channel": "777",
			"previous_counts": [3, 9],
			"s_banning": true,
			"s_minimum_ban": 2,
			"s_maximum_ban": 60,
			"s_ban_range": 1.2,
			"s_troll_amplifier": 5,
			"s_pass_doublecount": true,
			"s_correct_reaction": ["🙂"],
			"s_incorrect_reaction": ["💀"],
			"users": {
				"999888777666555444": {"correct_counts": 10, "incorrect_counts": 2, "time_banned": null, "ban_time": 30}
			}
		}
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := st.Load(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	rec, ok := st.Get("111222333444555666")
	if !ok {
		t.Fatalf("guild record missing after migration")
	}
	if rec.CurrentCount != 4 || rec.HighestCount != 9 {
		t.Errorf("counts = %d/%d, want 4/9", rec.CurrentCount, rec.HighestCount)
	}
	// Numeric snowflakes must survive without float precision loss.
	if rec.PreviousUser == nil || *rec.PreviousUser != "999888777666555444" {
		t.Errorf("PreviousUser = %v, want 999888777666555444", rec.PreviousUser)
	}
	if rec.MinimumBan != 2 || rec.MaximumBan != 60 {
		t.Errorf("ban range = %d/%d, want 2/60", rec.MinimumBan, rec.MaximumBan)
	}
	if rec.BanCurveBase != 1.2 {
		t.Errorf("BanCurveBase = %g, want 1.2", rec.BanCurveBase)
	}
	if rec.TrollMultiplier != 5 {
		t.Errorf("TrollMultiplier = %d, want 5", rec.TrollMultiplier)
	}
	if !rec.PassDoublecount {
		t.Errorf("PassDoublecount = false, want true")
	}
	user := rec.Users["999888777666555444"]
	if user == nil || user.BanMinutes != 30 {
		t.Errorf("user = %+v, want ban_time carried over as 30 ban minutes", user)
	}

	if baks := backups(t, path); len(baks) != 1 {
		t.Fatalf("backups = %v, want exactly one", baks)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	var sf stateFile
	if err := json.Unmarshal(data, &sf); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if sf.Version != schemaVersion {
		t.Errorf("rewritten version = %d, want %d", sf.Version, schemaVersion)
	}
}

func TestMutateNoChangeSkipsWrite(t *testing.T) {
	st, path := newTestStore(t)
	if err := st.Load(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := st.Ensure("guild-1"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	err = st.Mutate("guild-1", func(rec *models.GuildRecord) error {
		rec.CurrentCount = 777 // only visible on the clone
		return ErrNoChange
	})
	if err != nil {
		t.Fatalf("Mutate() = %v, want nil for ErrNoChange", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if diff := cmp.Diff(string(before), string(after)); diff != "" {
		t.Errorf("state file changed by an aborted mutation (-want +got):\n%s", diff)
	}
	rec, _ := st.Get("guild-1")
	if rec.CurrentCount != 0 {
		t.Errorf("CurrentCount = %d, want 0", rec.CurrentCount)
	}
}

func TestMutateRollsBackOnWriteFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	st := Open(filepath.Join(dir, "guild_data.json"), zap.NewNop().Sugar())
	if err := st.Load(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	err := st.Mutate("guild-1", func(rec *models.GuildRecord) error {
		rec.CurrentCount = 5
		return nil
	})
	if err == nil {
		t.Fatalf("Mutate() = nil, want an error when the write fails")
	}
	if _, ok := st.Get("guild-1"); ok {
		t.Errorf("failed mutation left the guild in memory")
	}
}

func TestMutateQuarantinesUnserializableState(t *testing.T) {
	st, path := newTestStore(t)
	if err := st.Load(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	err = st.Mutate("guild-1", func(rec *models.GuildRecord) error {
		rec.BanCurveBase = math.NaN() // JSON cannot encode NaN
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate() = %v, want nil with the snapshot quarantined", err)
	}

	if _, err := os.Stat(path + ".err"); err != nil {
		t.Errorf("quarantine file missing: %s", err)
	}
	// The live file keeps its previous content; the in-memory state keeps the
	// mutation.
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(before) != string(after) {
		t.Errorf("live state file changed despite the marshal failure")
	}
	rec, ok := st.Get("guild-1")
	if !ok || !math.IsNaN(rec.BanCurveBase) {
		t.Errorf("in-memory state lost after quarantine: %+v", rec)
	}
}

func TestEnsure(t *testing.T) {
	st, _ := newTestStore(t)
	if err := st.Load(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if err := st.Ensure("guild-1"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	got, ok := st.Get("guild-1")
	if !ok {
		t.Fatalf("guild record missing after Ensure")
	}
	if diff := cmp.Diff(models.DefaultGuildRecord(), got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Ensure() record mismatch (-want +got):\n%s", diff)
	}

	// Ensure on an existing guild leaves it alone.
	err := st.Mutate("guild-1", func(rec *models.GuildRecord) error {
		rec.CurrentCount = 3
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := st.Ensure("guild-1"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	got, _ = st.Get("guild-1")
	if got.CurrentCount != 3 {
		t.Errorf("CurrentCount = %d, want 3", got.CurrentCount)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	st, _ := newTestStore(t)
	if err := st.Load(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := st.Ensure("guild-1"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	rec, _ := st.Get("guild-1")
	rec.CurrentCount = 999
	rec.Users["intruder"] = models.NewUserRecord()

	fresh, _ := st.Get("guild-1")
	if fresh.CurrentCount != 0 {
		t.Errorf("CurrentCount = %d, want 0; Get leaked a live reference", fresh.CurrentCount)
	}
	if _, ok := fresh.Users["intruder"]; ok {
		t.Errorf("mutating a Get result reached the live state")
	}
}
