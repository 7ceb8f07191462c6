/*
Package streaming writes newline-delimited JSON event streams to HTTP
clients.

Long running operations such as video exports report progress as a
sequence of JSON objects, one per line, flushed as they happen:

	ew := streaming.NewEventWriter(r.Context(), w, streaming.DefaultWriteTimeout)
	for ev := range events {
	    if err := ew.Send(ev); err != nil {
	        return // client gone or too slow
	    }
	}

Each write is bounded by a write deadline so that a stalled client cannot
hold the handler forever. A cancelled request context is reported as
ErrClientGone.
*/
package streaming
