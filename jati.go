package tabalchi

import (
	"errors"
	"fmt"
	"strings"
)

// Jati is the number of syllables per beat. The special Infer jati (zero
// syllables) means that the syllable count of each beat is taken as is and
// not validated.
type Jati struct {
	Name      string
	Aliases   []string `yaml:",omitempty" json:",omitempty"`
	Syllables int
}

// InferJatiName is the name used in documents to skip jati validation.
const InferJatiName = "Infer"

var InferJati = Jati{Name: InferJatiName}

func (j Jati) Infer() bool {
	return j.Syllables == 0
}

func (j Jati) String() string {
	if j.Infer() {
		return j.Name
	}
	return fmt.Sprintf("%v (%d)", j.Name, j.Syllables)
}

func (j *Jati) Validate() error {
	if strings.TrimSpace(j.Name) == "" {
		return errors.New("jati has no name")
	}
	if j.Syllables < 1 {
		return fmt.Errorf("jati %q: syllables should be >= 1, got %d", j.Name, j.Syllables)
	}
	return nil
}
