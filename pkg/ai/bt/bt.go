// Package bt 最小的行为树，黑板类型由使用方决定
package bt

type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusRunning
)

type Node[B any] interface {
	Tick(bb B) Status
}

// Selector 选择节点：遇到 Success/Running 停止，全 Failure 才 Failure
type Selector[B any] struct {
	Children []Node[B]
}

func (s *Selector[B]) Tick(bb B) Status {
	for _, child := range s.Children {
		if st := child.Tick(bb); st != StatusFailure {
			return st
		}
	}
	return StatusFailure
}

// Sequence 顺序节点：遇到 Failure/Running 停止，全 Success 才 Success
type Sequence[B any] struct {
	Children []Node[B]
}

func (s *Sequence[B]) Tick(bb B) Status {
	for _, child := range s.Children {
		if st := child.Tick(bb); st != StatusSuccess {
			return st
		}
	}
	return StatusSuccess
}

type Condition[B any] struct {
	Check func(bb B) bool
}

func (c *Condition[B]) Tick(bb B) Status {
	if c.Check == nil || !c.Check(bb) {
		return StatusFailure
	}
	return StatusSuccess
}

type Action[B any] struct {
	Do func(bb B) Status
}

func (a *Action[B]) Tick(bb B) Status {
	if a.Do == nil {
		return StatusFailure
	}
	return a.Do(bb)
}
