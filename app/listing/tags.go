package listing

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Raw tag strings may carry a numeric group prefix: "3-waterfront" is
// group 3 with the display name derived from "waterfront".
var tagGroupPattern = regexp.MustCompile(`^(\d+)-(.*)$`)

var titleCaser = cases.Title(language.English)

// ParseTag parses a raw tag string against the configured group
// mapping. A tag whose group id has no mapping entry still parses, with
// a nil group name and a warning.
func ParseTag(raw string, groups map[int]string) Tag {
	name := raw
	var group *int
	var groupName *string

	if match := tagGroupPattern.FindStringSubmatch(raw); match != nil {
		id, err := strconv.Atoi(match[1])
		if err == nil {
			group = &id
			name = match[2]

			if mapped, ok := groups[id]; ok {
				groupName = &mapped
			} else {
				slog.Warn("Tag references unmapped group", "tag", raw, "group", id)
			}
		}
	}

	return Tag{
		Name:      displayName(name),
		Slug:      Slugify(name),
		Group:     group,
		GroupName: groupName,
	}
}

// displayName capitalizes each whitespace-separated word.
func displayName(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		words[i] = titleCaser.String(word)
	}
	return strings.Join(words, " ")
}

// SortTags orders tags for index output: by numeric group id ascending
// with absent ids last, ties broken alphabetically by display name.
func SortTags(tags []Tag) {
	sort.SliceStable(tags, func(i, j int) bool {
		a, b := tags[i], tags[j]
		switch {
		case a.Group != nil && b.Group != nil:
			if *a.Group != *b.Group {
				return *a.Group < *b.Group
			}
		case a.Group != nil:
			return true
		case b.Group != nil:
			return false
		}
		return a.Name < b.Name
	})
}
