package tree

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/mindmap/internal/invoke"
)

// Topic is a generated concept, optionally with generated subtopics.
// Children is nil when the generator said nothing about subtopics.
type Topic struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Children    []Topic `json:"children,omitempty"`
}

// Generator produces topics for the controller.
type Generator interface {
	// Topic builds the root of a tree for a search query.
	Topic(ctx context.Context, query string) (Topic, error)
	// Subtopics returns the children of the concept called name.
	Subtopics(ctx context.Context, name string) ([]Topic, error)
}

// topicReply is the reply shape for both requests. Every field is optional
// so partial replies still decode.
type topicReply struct {
	Name        string       `json:"name,omitempty" jsonschema:"description=Name of the topic"`
	Description string       `json:"description,omitempty" jsonschema:"description=Two or three sentence explanation"`
	Children    []childReply `json:"children,omitempty" jsonschema:"description=Key subtopics"`
}

type childReply struct {
	Name        string `json:"name" jsonschema:"required"`
	Description string `json:"description" jsonschema:"required"`
}

var replySchema = invoke.SchemaFor(&topicReply{})

// InvokeGenerator implements Generator on top of structured generation.
type InvokeGenerator struct {
	invoker invoke.Invoker
}

// NewInvokeGenerator creates a Generator backed by invoker.
func NewInvokeGenerator(invoker invoke.Invoker) *InvokeGenerator {
	return &InvokeGenerator{invoker: invoker}
}

func (g *InvokeGenerator) Topic(ctx context.Context, query string) (Topic, error) {
	prompt := fmt.Sprintf(`Create a knowledge map about "%s".
Give the topic a concise name, a short description, and 4-6 main subtopics,
each with a name and a one or two sentence description.`, query)

	var reply topicReply
	if err := g.invoker.Invoke(ctx, invoke.Request{
		Prompt:                 prompt,
		AddContextFromInternet: true,
		ResponseJSONSchema:     replySchema,
	}, &reply); err != nil {
		return Topic{}, err
	}

	topic := Topic{Name: reply.Name, Description: reply.Description}
	if topic.Name == "" {
		topic.Name = query
	}
	if reply.Children != nil {
		topic.Children = toTopics(reply.Children)
	}
	return topic, nil
}

func (g *InvokeGenerator) Subtopics(ctx context.Context, name string) ([]Topic, error) {
	prompt := fmt.Sprintf(`List 3-5 key subtopics of "%s" for someone learning about it.
Return them as the children array, each with a name and a one or two sentence description.`, name)

	var reply topicReply
	if err := g.invoker.Invoke(ctx, invoke.Request{
		Prompt:                 prompt,
		AddContextFromInternet: true,
		ResponseJSONSchema:     replySchema,
	}, &reply); err != nil {
		return nil, err
	}
	return toTopics(reply.Children), nil
}

func toTopics(children []childReply) []Topic {
	topics := make([]Topic, 0, len(children))
	for _, c := range children {
		topics = append(topics, Topic{Name: c.Name, Description: c.Description})
	}
	return topics
}
