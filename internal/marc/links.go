package marc

import (
	"sort"
	"strings"

	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/utils"
)

// formatLabels maps recognized file extensions to display labels.
var formatLabels = map[string]string{
	"epub": "EPUB",
	"pdf":  "PDF",
	"prc":  "PRC",
	"mobi": "MOBI",
	"txt":  "TXT",
	"html": "HTML",
	"rtf":  "RTF",
	"pdb":  "PDB",
}

// formatOrder is the display priority of download formats.
var formatOrder = []string{"epub", "pdf", "prc", "mobi", "html", "txt", "rtf", "pdb"}

// primaryFormats are the formats offered on the website.
var primaryFormats = map[string]bool{
	"epub": true,
	"pdf":  true,
	"prc":  true,
	"mobi": true,
}

const unrankedFormat = 99

// coverKeyword is matched against diacritic-folded labels.
const coverKeyword = "obalka"

func formatRank(ext string) int {
	for i, candidate := range formatOrder {
		if candidate == ext {
			return i
		}
	}
	return unrankedFormat
}

// extension returns the lower-cased text after the last dot of url.
func extension(url string) string {
	idx := strings.LastIndex(url, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(url[idx+1:])
}

func isCover(url, label string) bool {
	return strings.HasSuffix(url, ".jpg") ||
		strings.Contains(utils.FoldDiacritics(label), coverKeyword)
}

// linkSet is the outcome of scanning all electronic location (856) fields.
type linkSet struct {
	all   []entities.DownloadLink // every recognized format, priority sorted
	main  []entities.DownloadLink // primary formats only
	cover string
}

func extractLinks(acc Accessor) linkSet {
	var set linkSet

	for _, field := range acc.Fields("856") {
		url, ok := field.Subfield("u")
		if !ok {
			continue
		}
		label, _ := field.Subfield("z")

		if isCover(url, label) {
			// First cover wins; later cover fields are not download links either
			if set.cover == "" {
				set.cover = url
			}
			continue
		}

		ext := extension(url)
		format, known := formatLabels[ext]
		if !known {
			continue
		}
		set.all = append(set.all, entities.DownloadLink{
			URL:    url,
			Format: format,
			Ext:    ext,
			Label:  label,
		})
	}

	sort.SliceStable(set.all, func(i, j int) bool {
		return formatRank(set.all[i].Ext) < formatRank(set.all[j].Ext)
	})

	for _, link := range set.all {
		if primaryFormats[link.Ext] {
			set.main = append(set.main, link)
		}
	}

	return set
}
