/*
Package disruptor is a Disruptor-style concurrent event-processing engine.

Events are published into a fixed-capacity ring buffer by a single producer
and consumed by any number of processors, each running its own consume loop
on a dedicated goroutine with a private read cursor. The producer never
overwrites a slot before every processor has read it; when the ring is full
it backs off (spin, then yield, then sleep) until the slowest processor
catches up.

A pipeline that fans quotes out to two processors is shown below:

	package main

	import (
		"log"

		"github.com/marketpulse/disruptor"
	)

	type quote struct {
		Symbol string
		Bid    float64
		Ask    float64
	}

	func main() {
		eng, err := disruptor.NewBuilder[quote]().
			WithCapacity(1 << 16).
			WithNamedProcessor("spread", disruptor.ProcessorFunc[quote](func(ev *disruptor.Event[quote]) error {
				log.Printf("%s spread %.4f", ev.Payload.Symbol, ev.Payload.Ask-ev.Payload.Bid)
				return nil
			})).
			WithNamedProcessor("audit", disruptor.ProcessorFunc[quote](func(ev *disruptor.Event[quote]) error {
				log.Printf("seq %d at %s", ev.Sequence, ev.Timestamp)
				return nil
			})).
			Build()
		if err != nil {
			log.Fatal(err)
		}
		if err = eng.Start(); err != nil {
			log.Fatal(err)
		}
		eng.Publish(quote{Symbol: "EURUSD", Bid: 1.0841, Ask: 1.0843}, 1)
		if err = eng.Stop(); err != nil {
			log.Fatal(err)
		}
	}

Publish must be called by one goroutine at a time. Callers with several
producing goroutines either funnel them through a Publisher or build the
engine with WithProducerMode(MultiProducer).
*/
package disruptor
