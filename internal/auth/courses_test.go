// internal/auth/courses_test.go
package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"ascii colon and paren", "2025学年:线性代数(主讲-李雷)", "线性代数"},
		{"full-width colon and paren", "2025学年：数据结构（实验班）", "数据结构"},
		{"last colon wins", "a:b:微积分(上)", "微积分"},
		{"no colon", "普通化学(含实验)", "普通化学"},
		{"no colon no paren", "  大学英语  ", "大学英语"},
		{"paren before colon ignored", "学期(秋):算法设计", "算法设计"},
		{"mixed colon kinds", "x：y:高等代数(荣誉)", "高等代数"},
		{"whitespace around name", "学期: 概率论 (期中)", "概率论"},
		{"empty after colon", "学期:", ""},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, courseName(tt.raw))
		})
	}
}

func TestCourseID(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{
			"standard token",
			"/webapps/portal/launcher?type=Course&id=PkId{key=_49805_1,dataType=blackboard.data.course.Course}&url=",
			"_49805_1",
		},
		{"token at end with comma", "?id=PkId{key=_7_1,}", "_7_1"},
		{"missing token", "/webapps/portal/launcher?type=Course", ""},
		{"token without terminating comma", "?id=PkId{key=_49805_1}", ""},
		{"empty href", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, courseID(tt.href))
		})
	}
}

const courseListFixture = `<ul class="portletList-img courseListing">
  <li><a href="/webapps/portal/launcher?type=Course&amp;id=PkId{key=_49805_1,dataType=blackboard.data.course.Course}&amp;url=">2025学年:线性代数(主讲-李雷)</a></li>
  <li><a href="/webapps/portal/launcher?type=Course&amp;id=PkId{key=_50211_1,dataType=blackboard.data.course.Course}&amp;url=">2025学年：数据结构（实验班）</a></li>
  <li><a href="/webapps/portal/other">2025学年:没有编号的课程</a></li>
  <li><a href="/webapps/portal/launcher?type=Course&amp;id=PkId{key=_50999_1,dataType=blackboard.data.course.Course}&amp;url=">学期:</a></li>
</ul>`

func TestParseCourseList(t *testing.T) {
	courses, err := parseCourseList(courseListFixture, testHomeURL)
	require.NoError(t, err)
	require.Len(t, courses, 2, "records missing an id or name must be dropped")

	assert.Equal(t, "线性代数", courses[0].Name)
	assert.Equal(t, "_49805_1", courses[0].ID)
	assert.Equal(t,
		"https://course.pku.edu.cn/webapps/portal/launcher?type=Course&id=PkId{key=_49805_1,dataType=blackboard.data.course.Course}&url=",
		courses[0].URL, "relative hrefs must be resolved against the current location")

	assert.Equal(t, "数据结构", courses[1].Name)
	assert.Equal(t, "_50211_1", courses[1].ID)
}

func TestParseCourseListWithoutBaseURL(t *testing.T) {
	courses, err := parseCourseList(courseListFixture, "")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	// Without a base the raw href is kept.
	assert.Equal(t,
		"/webapps/portal/launcher?type=Course&id=PkId{key=_49805_1,dataType=blackboard.data.course.Course}&url=",
		courses[0].URL)
}

func TestParseCourseListEmpty(t *testing.T) {
	courses, err := parseCourseList(`<ul class="courseListing"></ul>`, testHomeURL)
	require.NoError(t, err)
	assert.Empty(t, courses)
}
