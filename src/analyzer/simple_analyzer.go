package analyzer

import (
	"github.com/andrewyi/streamcrawler/src/entity"
	"github.com/andrewyi/streamcrawler/src/enum"
)

type SimpleAnalyzer struct {
	extractors map[enum.Kind]Extractor
}

// Unknown与Hypertext使用同一种提取方式
func NewSimpleAnalyzer() *SimpleAnalyzer {
	hypertext := HypertextExtractor{}
	return &SimpleAnalyzer{
		extractors: map[enum.Kind]Extractor{
			enum.KindPlaylist:         PlaylistExtractor{},
			enum.KindStructuredMarkup: MarkupExtractor{},
			enum.KindStructuredData:   DataExtractor{},
			enum.KindPlainText:        TextExtractor{},
			enum.KindHypertext:        hypertext,
			enum.KindUnknown:          hypertext,
		},
	}
}

func (a *SimpleAnalyzer) ExtractorFor(kind enum.Kind) Extractor {
	if e, ok := a.extractors[kind]; ok {
		return e
	}
	return a.extractors[enum.KindHypertext]
}

func (a *SimpleAnalyzer) Analyze(page entity.Page) (enum.Kind, []string, error) {
	kind := ClassifyPage(page)
	urls, err := a.ExtractorFor(kind).Extract(page)
	return kind, urls, err
}
