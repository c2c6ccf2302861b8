/*
Package template renders notification titles and messages from events.

Two placeholder kinds are supported:

	{{dotted.key}}                      scalar value at a nested key
	{{loop:item in alerts:[{{item.x}}]}} one line per element of a list

The canonical JSON of the event is exposed as {{raw_message}}. The template
is then read once from left to right: loop blocks expand per element and
scalar placeholders are substituted in the same pass, so values taken from
the event are never expanded again. Placeholders that name no key are kept as-is,
and so are loop blocks whose source is missing or not a list, which keeps
template mistakes visible in the delivered notification.

	msg := template.Render(event, "Host {{host}} is {{status.level}}")

Render is pure and safe for concurrent use.
*/
package template
