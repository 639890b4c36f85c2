package bollywood

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"
)

const defaultMailboxSize = 1024

// process is the running instance of an actor: its state, mailbox and
// lifecycle bookkeeping.
type process struct {
	engine  *Engine
	pid     *PID
	actor   Actor
	mailbox chan *messageEnvelope
	props   *Props
	stopCh  chan struct{}
	stopped atomic.Bool
}

func newProcess(engine *Engine, pid *PID, props *Props) *process {
	return &process{
		engine:  engine,
		pid:     pid,
		props:   props,
		mailbox: make(chan *messageEnvelope, defaultMailboxSize),
		stopCh:  make(chan struct{}),
	}
}

func (p *process) sendMessage(env *messageEnvelope) {
	_, isStopping := env.Message.(Stopping)
	_, isStopped := env.Message.(Stopped)
	if p.stopped.Load() && !isStopping && !isStopped {
		return
	}

	select {
	case p.mailbox <- env:
	default:
		fmt.Printf("bollywood: actor %s mailbox full, dropping message %T\n", p.pid.ID, env.Message)
	}
}

func (p *process) run() {
	var stoppingInvoked bool

	defer func() {
		p.stopped.Store(true)

		defer func() {
			if r := recover(); r != nil {
				fmt.Printf("bollywood: actor %s panicked during final cleanup: %v\n", p.pid.ID, r)
			}
			p.engine.remove(p.pid)
		}()

		if p.actor != nil {
			if !stoppingInvoked {
				p.invokeReceive(Stopping{}, nil, "", nil)
			}
			p.invokeReceive(Stopped{}, nil, "", nil)
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("bollywood: actor %s panicked: %v\nstack:\n%s\n", p.pid.ID, r, string(debug.Stack()))
			if p.stopped.CompareAndSwap(false, true) {
				select {
				case <-p.stopCh:
				default:
					close(p.stopCh)
				}
			}
		}
	}()

	p.actor = p.props.Produce()
	if p.actor == nil {
		panic(fmt.Sprintf("bollywood: actor %s producer returned nil actor", p.pid.ID))
	}
	p.invokeReceive(Started{}, nil, "", nil)

	for {
		select {
		case <-p.stopCh:
			if p.stopped.CompareAndSwap(false, true) {
				if !stoppingInvoked {
					p.invokeReceive(Stopping{}, nil, "", nil)
					stoppingInvoked = true
				}
			}
			return

		case env, ok := <-p.mailbox:
			if !ok {
				return
			}

			_, isStopping := env.Message.(Stopping)
			_, isStoppedMsg := env.Message.(Stopped)
			if p.stopped.Load() && !isStopping && !isStoppedMsg {
				continue
			}

			switch msg := env.Message.(type) {
			case Stopping:
				if p.stopped.CompareAndSwap(false, true) {
					if !stoppingInvoked {
						p.invokeReceive(msg, env.Sender, env.requestID, env.replyCh)
						stoppingInvoked = true
					}
					select {
					case <-p.stopCh:
					default:
						close(p.stopCh)
					}
				}
			default:
				p.invokeReceive(env.Message, env.Sender, env.requestID, env.replyCh)
			}
		}
	}
}

// invokeReceive calls the actor's Receive method within a panic-protected context.
func (p *process) invokeReceive(msg interface{}, sender *PID, requestID string, replyCh chan interface{}) {
	ctx := &context{
		engine:    p.engine,
		self:      p.pid,
		sender:    sender,
		message:   msg,
		requestID: requestID,
		replyCh:   replyCh,
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("bollywood: actor %s panicked during Receive(%T): %v\nstack:\n%s\n", p.pid.ID, msg, r, string(debug.Stack()))
			if requestID != "" {
				ctx.Reply(fmt.Errorf("actor panicked: %v", r))
			}
			if p.stopped.CompareAndSwap(false, true) {
				select {
				case <-p.stopCh:
				default:
					close(p.stopCh)
				}
			}
		}
	}()
	p.actor.Receive(ctx)
}
