package split

import (
	"fmt"

	"github.com/nao1215/cxrbalance/internal/model"
)

// Partition holds the file names assigned to each split.
type Partition struct {
	Train []string `json:"train"`
	Val   []string `json:"val"`
	Test  []string `json:"test"`
}

// Len returns the total number of assigned files.
func (p Partition) Len() int {
	return len(p.Train) + len(p.Val) + len(p.Test)
}

// Files returns the files of the named split.
func (p Partition) Files(split string) ([]string, error) {
	switch split {
	case model.SplitTrain:
		return p.Train, nil
	case model.SplitVal:
		return p.Val, nil
	case model.SplitTest:
		return p.Test, nil
	default:
		return nil, fmt.Errorf("unknown split %q", split)
	}
}

func (p *Partition) append(other Partition) {
	p.Train = append(p.Train, other.Train...)
	p.Val = append(p.Val, other.Val...)
	p.Test = append(p.Test, other.Test...)
}

// Positional splits files in the given order: the first train share goes
// to train, then val, then test. Every input appears in exactly one split.
func Positional(files []string, r Ratios) (Partition, error) {
	if err := r.Validate(); err != nil {
		return Partition{}, err
	}
	return cut(files, r), nil
}

func cut(files []string, r Ratios) Partition {
	train, val, _ := r.Sizes(len(files))
	return Partition{
		Train: clone(files[:train]),
		Val:   clone(files[train : train+val]),
		Test:  clone(files[train+val:]),
	}
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
