package enum

// Kind 文档类型，由url后缀决定，新增类型需要同时在analyzer中注册extractor
type Kind uint8

const (
	KindUnknown Kind = iota
	KindHypertext
	KindPlaylist
	KindStructuredMarkup
	KindStructuredData
	KindPlainText
)

func (k Kind) String() string {
	switch k {
	case KindHypertext:
		return "hypertext"
	case KindPlaylist:
		return "playlist"
	case KindStructuredMarkup:
		return "structured_markup"
	case KindStructuredData:
		return "structured_data"
	case KindPlainText:
		return "plain_text"
	default:
		return "unknown"
	}
}

// Outcome 校验结果
type Outcome uint8

const (
	OutcomeValid Outcome = iota
	OutcomeInvalid
	OutcomeError // 超时或连接失败，输出时等同invalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "error"
	}
}

const (
	DefaultMaxDepth        = 2
	DefaultPageBudget      = 50
	DefaultMaxBodySize     = 5 * 1024 * 1024
	DefaultFetchTimeout    = 10 // seconds
	DefaultValidateTimeout = 10 // seconds
	DefaultValidateWorker  = 100
	DefaultPolitenessDelay = 1000 // milliseconds
	DefaultUserAgent       = "Mozilla/5.0"
)
