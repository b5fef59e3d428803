package notebox

import "github.com/jsphweid/simon/model"

// NewAll creates one NoteBox per key, failing on the first missing resource.
func NewAll(keys []model.Key, lookup Lookup, opts ...Option) ([]*NoteBox, error) {
	res := make([]*NoteBox, 0, len(keys))
	for _, key := range keys {
		box, err := New(key, lookup, opts...)
		if err != nil {
			return nil, err
		}
		res = append(res, box)
	}
	return res, nil
}
