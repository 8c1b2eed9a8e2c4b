// Package generation defines the boundary between the application and a
// structured text-generation backend.
//
// A Prompt couples a text/template with a typed input and a typed output.
// Generate validates the input, renders the template, reflects the JSON schema
// of the output type and hands a Call to a Generator. The Generator returns raw
// JSON, which is decoded (tolerating code fences) and validated against the
// output type's validate tags.
//
// Tools are Go callbacks the backend may invoke mid-generation. Their
// arguments are decoded into the tool's input type before the callback runs.
//
// Backends live in sub-packages: openai speaks the OpenAI-compatible chat
// completions protocol, generationtest provides a scripted backend for tests.
package generation
