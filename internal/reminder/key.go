package reminder

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/spherelog/spherelog/internal/model"
)

// RescheduleKey derives a content hash over everything a schedule pass
// depends on: the set of template ids, the full assignment map (including
// inline custom template fields), the total memory count, and the
// subscription flag. Equal keys mean a reschedule would reproduce the
// current schedule, so the pass can be skipped.
func RescheduleKey(templates []model.Template, assignments model.AssignmentMap, memoryCount int, subscribed bool) string {
	ids := make([]string, 0, len(templates))
	for _, t := range templates {
		ids = append(ids, t.ID)
	}
	sort.Strings(ids)

	// encoding/json emits map keys in sorted order and struct fields in
	// declaration order, so this serialization is canonical.
	payload := struct {
		TemplateIDs []string            `json:"templateIds"`
		Assignments model.AssignmentMap `json:"assignments"`
		MemoryCount int                 `json:"memoryCount"`
		Subscribed  bool                `json:"subscribed"`
	}{ids, assignments, memoryCount, subscribed}

	raw, err := json.Marshal(payload)
	if err != nil {
		// Marshal of these types cannot fail; guard anyway.
		return "unhashable"
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
