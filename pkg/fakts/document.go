package fakts

import (
	"strconv"
	"strings"

	jmes "github.com/jmespath/go-jmespath"
)

// lookup finds key in a decoded fakts document. A flat top-level entry wins;
// otherwise the dotted key is evaluated as a JMESPath field chain, so
// "lok.userinfo_url" reaches {"lok": {"userinfo_url": ...}}.
func lookup(doc map[string]any, key string) (any, error) {
	if v, ok := doc[key]; ok {
		return v, nil
	}
	v, err := jmes.Search(expression(key), doc)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

// expression quotes each dotted segment so keys like "user-endpoint" stay valid.
func expression(key string) string {
	segs := strings.Split(key, ".")
	for i, s := range segs {
		segs[i] = strconv.Quote(s)
	}
	return strings.Join(segs, ".")
}
