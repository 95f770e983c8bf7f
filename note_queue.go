// note_queue.go - Multi-producer note command queue drained by the audio goroutine

package main

import "sync"

// noteCommand targets one channel index, or NO_CHANNEL to stop everything.
type noteCommand struct {
	channel int
	note    Note
}

// noteQueue is written by any goroutine and drained only by the player loop.
type noteQueue struct {
	mu       sync.Mutex
	commands []noteCommand
}

func (q *noteQueue) Enqueue(cmd noteCommand) {
	q.mu.Lock()
	q.commands = append(q.commands, cmd)
	q.mu.Unlock()
}

// DrainLast empties the queue and returns the newest command. Older commands
// are superseded: only the last one issued in a frame is played.
func (q *noteQueue) DrainLast() (noteCommand, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.commands)
	if n == 0 {
		return noteCommand{}, false
	}
	last := q.commands[n-1]
	q.commands = q.commands[:0]
	return last, true
}

func (q *noteQueue) Clear() {
	q.mu.Lock()
	q.commands = q.commands[:0]
	q.mu.Unlock()
}

func (q *noteQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.commands)
}

func (q *noteQueue) Empty() bool {
	return q.Len() == 0
}
