package frameloop

// CircularQueue keeps the most recent len(Data) items.
// Enqueue on a full queue drops the oldest item.
type CircularQueue[T any] struct {
	End    int
	Start  int
	Length int
	Data   []T
}

func NewCircularQueue[T any](size int) CircularQueue[T] {
	return CircularQueue[T]{
		Data: make([]T, max(size, 1)),
	}
}

func (q *CircularQueue[T]) IsFull() bool {
	return q.Length >= len(q.Data)
}

func (q *CircularQueue[T]) IsEmpty() bool {
	return q.Length <= 0
}

func (q *CircularQueue[T]) Enqueue(item T) {
	index := q.End

	if q.IsFull() {
		q.Start = (q.Start + 1) % len(q.Data)
	} else {
		q.Length += 1
	}
	q.End = (q.End + 1) % len(q.Data)

	q.Data[index] = item
}

// At returns the index-th oldest item.
func (q *CircularQueue[T]) At(index int) T {
	return q.Data[(q.Start+index)%len(q.Data)]
}

func (q *CircularQueue[T]) PeekLast() T {
	return q.Data[(q.End-1+len(q.Data))%len(q.Data)]
}

// Items returns the items from oldest to newest.
func (q *CircularQueue[T]) Items() []T {
	items := make([]T, 0, q.Length)
	for i := 0; i < q.Length; i++ {
		items = append(items, q.At(i))
	}
	return items
}

func (q *CircularQueue[T]) Clear() {
	q.Length = 0
	q.Start = 0
	q.End = 0
}
