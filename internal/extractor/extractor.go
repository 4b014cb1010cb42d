package extractor

// Result holds the arrays extracted from one document.
type Result struct {
	Posts       []any
	Friends     []any
	Media       []any
	Messages    []any
	Experiences map[string]any
}

// RecordCount is the number of records across the four arrays.
func (r Result) RecordCount() int {
	return len(r.Posts) + len(r.Friends) + len(r.Media) + len(r.Messages)
}

// Rule is one way of finding records of a type in a document.
type Rule struct {
	Name    string
	Match   func(doc any) bool
	Extract func(doc any) []any
}

// Extractor applies ordered rule lists per record type.
type Extractor struct {
	posts          []Rule
	friends        []Rule
	media          []Rule
	messages       []Rule
	experienceKeys []string
}

var (
	PostKeys       = []string{"posts", "status_updates", "timeline", "your_posts"}
	FriendKeys     = []string{"friends", "friends_v2", "your_friends"}
	MediaKeys      = []string{"photos", "photos_v2", "other_photos_v2", "videos", "videos_v2", "media"}
	MessageKeys    = []string{"messages", "inbox_messages"}
	ExperienceKeys = []string{"experiences", "profile_v2"}
)

// New creates an extractor with the built-in rules.
func New() *Extractor {
	e := &Extractor{experienceKeys: ExperienceKeys}

	e.posts = append(keyRules(PostKeys), Rule{
		Name:    "single post document",
		Match:   isSinglePost,
		Extract: func(doc any) []any { return []any{doc} },
	})
	e.friends = append(keyRules(FriendKeys), Rule{
		Name:    "bare array of named entries",
		Match:   func(doc any) bool { return firstElementHas(doc, "name") },
		Extract: bareArray,
	})
	e.media = append(keyRules(MediaKeys), Rule{
		Name:    "bare array of uri entries",
		Match:   func(doc any) bool { return firstElementHas(doc, "uri") },
		Extract: bareArray,
	})
	e.messages = keyRules(MessageKeys)

	return e
}

// Extract returns the posts, friends, media and messages found in doc.
func (e *Extractor) Extract(doc any) Result {
	return Result{
		Posts:       apply(e.posts, doc),
		Friends:     apply(e.friends, doc),
		Media:       apply(e.media, doc),
		Messages:    apply(e.messages, doc),
		Experiences: e.experiences(doc),
	}
}

func (e *Extractor) experiences(doc any) map[string]any {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	for _, key := range e.experienceKeys {
		if sub, ok := obj[key].(map[string]any); ok {
			return sub
		}
	}
	return nil
}

func apply(rules []Rule, doc any) []any {
	out := []any{}
	for _, rule := range rules {
		if rule.Match(doc) {
			out = append(out, rule.Extract(doc)...)
		}
	}
	return out
}

func keyRules(keys []string) []Rule {
	rules := make([]Rule, 0, len(keys))
	for _, key := range keys {
		rules = append(rules, Rule{
			Name: "key " + key,
			Match: func(doc any) bool {
				obj, ok := doc.(map[string]any)
				if !ok {
					return false
				}
				_, isArray := obj[key].([]any)
				return isArray
			},
			Extract: func(doc any) []any {
				return doc.(map[string]any)[key].([]any)
			},
		})
	}
	return rules
}

// isSinglePost matches {"data": [{"post": ...}, ...]} at the top level.
func isSinglePost(doc any) bool {
	obj, ok := doc.(map[string]any)
	if !ok {
		return false
	}
	data, ok := obj["data"].([]any)
	if !ok || len(data) == 0 {
		return false
	}
	first, ok := data[0].(map[string]any)
	if !ok {
		return false
	}
	_, hasPost := first["post"]
	return hasPost
}

func firstElementHas(doc any, field string) bool {
	arr, ok := doc.([]any)
	if !ok || len(arr) == 0 {
		return false
	}
	first, ok := arr[0].(map[string]any)
	if !ok {
		return false
	}
	_, has := first[field]
	return has
}

func bareArray(doc any) []any {
	return doc.([]any)
}
