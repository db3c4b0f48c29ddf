package scene

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SceneInfo describes a registered scene for listings
type SceneInfo struct {
	ID          string `json:"id"`          // Name accepted by Lookup
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"`
	Seeded      bool   `json:"seeded"` // Whether the scene seed changes the result
}

// ListScenes returns every registered scene sorted by ID
func ListScenes() []SceneInfo {
	names := Names()
	scenes := make([]SceneInfo, 0, len(names))
	for _, name := range names {
		entry := registry[name]
		scenes = append(scenes, SceneInfo{
			ID:          name,
			DisplayName: titleCase(name),
			Description: entry.description,
			Seeded:      entry.seeded,
		})
	}
	return scenes
}

// titleCase converts kebab-case or snake_case to Title Case
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return cases.Title(language.English).String(s)
}
