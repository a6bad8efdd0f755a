// Package live рассылает новые комментарии подписчикам страницы поста.
package live

import (
	"context"
	"sync"
	"time"

	"github.com/UkralStul/yatube/internal/domain"

	"github.com/google/uuid"
)

// Message - комментарий в том виде, в котором он уходит подписчику.
type Message struct {
	ID      int64     `json:"id"`
	PostID  int64     `json:"post_id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
}

// NewMessage собирает сообщение из комментария и его автора.
func NewMessage(c *domain.Comment, author *domain.User) Message {
	msg := Message{ID: c.ID, PostID: c.PostID, Text: c.Text, Created: c.Created}
	if author != nil {
		msg.Author = author.Username
	}
	return msg
}

// CommentObserver хранит каналы для подписчиков на комментарии.
type CommentObserver struct {
	mu sync.RWMutex
	//          map[postID] map[subscriberID] channel
	subs map[int64]map[string]chan Message
}

// NewCommentObserver - конструктор для нашего наблюдателя.
func NewCommentObserver() *CommentObserver {
	return &CommentObserver{
		subs: make(map[int64]map[string]chan Message),
	}
}

// Subscribe регистрирует подписчика на комментарии поста.
// Канал закрывается после отмены ctx.
func (o *CommentObserver) Subscribe(ctx context.Context, postID int64) <-chan Message {
	ch := make(chan Message, 8)
	subID := uuid.NewString()

	o.mu.Lock()
	if o.subs[postID] == nil {
		o.subs[postID] = make(map[string]chan Message)
	}
	o.subs[postID][subID] = ch
	o.mu.Unlock()

	// Горутина для очистки при отключении клиента
	go func() {
		<-ctx.Done()
		o.mu.Lock()
		if postSubs, ok := o.subs[postID]; ok {
			delete(postSubs, subID)
			if len(postSubs) == 0 {
				delete(o.subs, postID)
			}
		}
		close(ch)
		o.mu.Unlock()
	}()

	return ch
}

// Publish отправляет сообщение всем подписчикам поста, не блокируясь.
func (o *CommentObserver) Publish(msg Message) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, ch := range o.subs[msg.PostID] {
		select {
		case ch <- msg:
		default:
			// Клиент не успевает читать, сообщение пропускается
		}
	}
}

// Subscribers возвращает число подписчиков поста.
func (o *CommentObserver) Subscribers(postID int64) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs[postID])
}
